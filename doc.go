/*
Package enroll is a product eligibility and enrollment orchestration engine.

It matches consumers to insurance products, evaluates eligibility rules, fetches
priced quotes from carrier providers, surfaces cross-sell offers and drives a
consumer through enrollment with a strictly forward state machine.

# Concept

Products are data: qualifiers, rules, disclaimers and an enrollment flow loaded
once into a Catalog. Providers are plugins behind ports.Provider, registered by id
in a Registry. Both are frozen when the Engine is built. A workflow moves through
initiated, eligibility_check, quote_generation, cross_sell, enrollment and
completed; any step may fail it, and a failed workflow can be resumed.

# Usage

	cat := catalog.New()
	if err := cat.Load(catalog.PathSource("./products")); err != nil {
		log.Print(err) // bad products are skipped, the rest is loaded
	}

	providers := registry.NewRegistry()
	providers.MustRegister(mock.New("mock"))

	eng, err := enroll.New(cat, providers)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	state, err := eng.StartWorkflow(ctx, "", consumer, "health-basic")
	if err != nil {
		log.Fatal(err)
	}
	state, err = eng.RunWorkflow(ctx, state.WorkflowID, consumer, domain.WorkflowInput{
		Enrollment: domain.EnrollmentInput{Acknowledgments: []string{"Terms of Coverage"}},
	})

The same operations are reachable as tagged requests through Engine.Dispatch, which
the MCP and HTTP adapters use.
*/
package enroll
