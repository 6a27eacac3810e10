package categorize

import "regexp"

// Rule maps description text to a category via regex patterns and
// plain keyword containment. Higher priority wins; custom rules
// default to priority 5 so they outrank the built-ins below.
type Rule struct {
	Category    string
	Subcategory string
	Patterns    []string
	Keywords    []string
	Priority    int

	compiled []*regexp.Regexp
}

// NewRule compiles the rule's patterns. An invalid regex fails the
// whole rule.
func NewRule(category, subcategory string, patterns, keywords []string, priority int) (Rule, error) {
	r := Rule{
		Category:    category,
		Subcategory: subcategory,
		Patterns:    patterns,
		Keywords:    keywords,
		Priority:    priority,
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return Rule{}, err
		}
		r.compiled = append(r.compiled, re)
	}
	return r, nil
}

func mustRule(category, subcategory string, patterns, keywords []string, priority int) Rule {
	r, err := NewRule(category, subcategory, patterns, keywords, priority)
	if err != nil {
		panic(err)
	}
	return r
}

// defaultRules returns the built-in rule table. Order matters: the
// classifier's tie-break among equal priorities depends on it.
func defaultRules() []Rule {
	return []Rule{
		// Food & Dining
		mustRule("Food & Dining", "Restaurants",
			[]string{
				`RESTAURANT|BISTRO|CAFE|DINER|EATERY|GRILL|BAR|PUB`,
				`PIZZA|BURGER|SUSHI|TACO|COFFEE|STARBUCKS|TIM HORTONS`,
				`MCDONALDS|SUBWAY|A&W|PIZZA HUT|DOMINOS`,
			},
			[]string{"restaurant", "cafe", "coffee", "bar", "pub", "diner"}, 2),
		mustRule("Food & Dining", "Groceries",
			[]string{
				`SUPERMARKET|GROCERY|SAFEWAY|LOBLAWS|METRO|FOOD BASICS`,
				`COSTCO|WALMART.*SUPERCENTER|SAVE ON FOODS`,
			},
			[]string{"grocery", "supermarket", "food"}, 2),
		mustRule("Food & Dining", "Fast Food",
			[]string{
				`MCDONALDS|SUBWAY|BURGER KING|KFC|TACO BELL|WENDYS`,
				`A&W|DAIRY QUEEN|POPEYES|MUCHO BURRITO`,
			},
			[]string{"mcdonalds", "subway", "burger"}, 3),

		// Transportation
		mustRule("Transportation", "Rideshare",
			[]string{`UBER|LYFT`},
			[]string{"uber", "lyft", "rideshare"}, 3),
		mustRule("Transportation", "Public Transit",
			[]string{`TRANSIT|PRESTO|COMPASS|MTA`},
			[]string{"transit", "presto", "metro"}, 3),
		mustRule("Transportation", "Gas",
			[]string{`PETRO|SHELL|ESSO|CHEVRON|EXXON|BP|GAS`},
			[]string{"petro", "gas", "fuel"}, 2),
		mustRule("Transportation", "Airlines",
			[]string{`AIR CANADA|WESTJET|UNITED|DELTA|AMERICAN AIR`},
			[]string{"airline", "airways", "flight"}, 3),

		// Shopping
		mustRule("Shopping", "Online",
			[]string{`AMAZON|PAYPAL|EBAY`},
			[]string{"amazon", "paypal", "online"}, 3),
		mustRule("Shopping", "Retail",
			[]string{
				`WALMART|TARGET|CANADIAN TIRE|HOME DEPOT|BEST BUY`,
				`SHOPPERS DRUG MART|DOLLARAMA|WINNERS`,
			},
			[]string{"walmart", "target", "retail"}, 2),
		mustRule("Shopping", "Clothing",
			[]string{
				`LULULEMON|H&M|ZARA|GAP|OLD NAVY|UNIQLO`,
				`WINNERS|MARSHALLS|NORDSTROM`,
			},
			[]string{"clothing", "fashion", "apparel"}, 3),

		// Entertainment
		mustRule("Entertainment", "Streaming",
			[]string{`NETFLIX|SPOTIFY|APPLE.*MUSIC|DISNEY|PRIME`},
			[]string{"netflix", "spotify", "streaming"}, 3),
		mustRule("Entertainment", "Events",
			[]string{`TICKETMASTER|STUBHUB|CONCERT|THEATRE`},
			[]string{"ticket", "concert", "show", "event"}, 2),

		// Health & Fitness
		mustRule("Health & Fitness", "Pharmacy",
			[]string{`SHOPPERS DRUG|PHARMACY|CVS|WALGREENS`},
			[]string{"pharmacy", "drug", "medical"}, 3),
		mustRule("Health & Fitness", "Gym",
			[]string{`GYM|FITNESS|YOGA|GOODLIFE`},
			[]string{"gym", "fitness", "workout"}, 3),

		// Bills & Utilities
		mustRule("Bills & Utilities", "Phone",
			[]string{`ROGERS|BELL|TELUS|FIDO|KOODO`},
			[]string{"phone", "mobile", "cellular"}, 3),

		// Transfers & Payments
		mustRule("Transfers", "Payment",
			[]string{`PAYMENT|PYMT|TRANSFER|TRSF`},
			[]string{"payment", "transfer", "pymt"}, 4),
	}
}
