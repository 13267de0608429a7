package enroll_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/enroll"
	"github.com/aretw0/enroll/pkg/adapters/mock"
	"github.com/aretw0/enroll/pkg/catalog"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/registry"
)

// Example drives one consumer from product selection to a pending enrollment.
func Example() {
	cat := catalog.New()
	err := cat.Register(domain.Product{
		ID:         "life-term",
		Name:       "Term Life",
		Category:   domain.CategoryLife,
		ProviderID: "acme",
		Disclaimers: []domain.Disclaimer{
			{Type: "legal", Title: "Policy Terms", RequiredAcknowledgment: true},
		},
		Active: true,
	})
	if err != nil {
		log.Fatal(err)
	}

	providers := registry.NewRegistry()
	providers.MustRegister(mock.New("acme"))

	eng, err := enroll.New(cat, providers)
	if err != nil {
		log.Fatal(err)
	}

	consumer := domain.Consumer{ID: "c-1", FirstName: "Alan", Profile: map[string]any{"age": 40}}
	ctx := context.Background()

	state, err := eng.StartWorkflow(ctx, "wf-example", consumer, "life-term")
	if err != nil {
		log.Fatal(err)
	}
	state, err = eng.RunWorkflow(ctx, state.WorkflowID, consumer, domain.WorkflowInput{
		Enrollment: domain.EnrollmentInput{Acknowledgments: []string{"Policy Terms"}},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(state.Current)
	fmt.Printf("premium: %.2f\n", state.Quote.MonthlyPremium)
	fmt.Println("enrollment:", state.Enrollment.Status)
	// Output:
	// completed
	// premium: 80.00
	// enrollment: pending
}
