package querygen

// ExampleCategory groups example queries.
type ExampleCategory struct {
	Category string   `json:"category"`
	Queries  []string `json:"queries"`
}

// ExampleSet is the payload of the examples endpoint.
type ExampleSet struct {
	Examples []ExampleCategory `json:"examples"`
	Tips     []string          `json:"tips"`
}

// Examples returns queries that work well with the heuristic generator.
func Examples() ExampleSet {
	return ExampleSet{
		Examples: []ExampleCategory{
			{
				Category: "Weather APIs",
				Queries: []string{
					"Get current weather for Tokyo",
					"Show me the weather forecast for the next 7 days",
					"Get temperature in Celsius for New York",
					"What's the current humidity in London?",
				},
			},
			{
				Category: "User Management",
				Queries: []string{
					"Create a new user with name John Doe",
					"Get all users from the system",
					"Update user profile information",
					"Delete a user by ID",
				},
			},
			{
				Category: "Pet Store",
				Queries: []string{
					"Find pets by status",
					"Find pets with tags",
				},
			},
			{
				Category: "General API Operations",
				Queries: []string{
					"List all available endpoints",
					"Search for items with filters",
					"Get data with pagination",
					"Submit a form with user data",
				},
			},
		},
		Tips: []string{
			"Be specific about what data you want to retrieve or modify",
			"Mention parameter values when possible (e.g., 'Tokyo' instead of 'a city')",
			"Include the action you want to perform (get, create, update, delete)",
			"Specify formats or units if relevant (e.g., 'in Celsius', 'as JSON')",
		},
	}
}
