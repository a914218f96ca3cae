package badges

// midwestStates states counted by the Midwest Explorer badge.
var midwestStates = []string{"IL", "IN", "IA", "KS", "MI", "MN", "MO", "NE", "ND", "OH", "SD", "WI"}

// Registry default badge definitions.
var Registry = []Badge{
	{
		ID:          "reviewer-10",
		Name:        "Regular",
		Description: "Wrote 10 reviews",
		Icon:        "🍽️",
		Category:    CategoryMilestone,
		Earned:      MinReviews(10),
	},
	{
		ID:          "reviewer-25",
		Name:        "Food Critic",
		Description: "Wrote 25 reviews",
		Icon:        "📝",
		Category:    CategoryMilestone,
		Earned:      MinReviews(25),
	},
	{
		ID:          "reviewer-50",
		Name:        "Connoisseur",
		Description: "Wrote 50 reviews",
		Icon:        "🏅",
		Category:    CategoryMilestone,
		Earned:      MinReviews(50),
	},
	{
		ID:          "reviewer-100",
		Name:        "Legend",
		Description: "Wrote 100 reviews",
		Icon:        "🏆",
		Category:    CategoryMilestone,
		Earned:      MinReviews(100),
	},
	{
		ID:          "photo-master",
		Name:        "Photo Master",
		Description: "Added photos to 10 reviews",
		Icon:        "📸",
		Category:    CategoryEngagement,
		Earned:      MinPhotoReviews(10),
	},
	{
		ID:          "fifty-states",
		Name:        "Coast to Coast",
		Description: "Reviewed restaurants in all 50 states",
		Icon:        "🇺🇸",
		Category:    CategoryGeographic,
		Earned:      VisitedAll(USStates),
	},
	{
		ID:          "illinois-local",
		Name:        "Illinois Local",
		Description: "Wrote 10 reviews in Illinois",
		Icon:        "🌭",
		Category:    CategoryRegional,
		Earned:      MinReviewsInState("IL", 10),
	},
	{
		ID:          "ohio-local",
		Name:        "Ohio Local",
		Description: "Wrote 10 reviews in Ohio",
		Icon:        "🌰",
		Category:    CategoryRegional,
		Earned:      MinReviewsInState("OH", 10),
	},
	{
		ID:          "midwest-explorer",
		Name:        "Midwest Explorer",
		Description: "Reviewed restaurants in 5 Midwest states",
		Icon:        "🌽",
		Category:    CategoryRegional,
		Earned:      VisitedAtLeast(midwestStates, 5),
	},
	{
		ID:          "trailblazer",
		Name:        "Trailblazer",
		Description: "First to review a restaurant",
		Icon:        "🧭",
		Category:    CategoryDiscovery,
		Earned:      MinFirstReviews(1),
	},
}

// DefaultEngine engine over Registry.
func DefaultEngine() *Engine {
	e, err := NewEngine(Registry)
	if err != nil {
		panic(err)
	}
	return e
}
