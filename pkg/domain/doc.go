/*
Package domain contains the core domain models of the enrollment engine.

It defines the product configuration entities (Product, EligibilityRule, Qualifier,
Disclaimer, EnrollmentStep), the per-request entities (Consumer, QuoteRequest, Quote,
Enrollment) and the workflow snapshot (WorkflowState). This package is kept pure and
free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Product: a catalog entry with eligibility rules, disclaimers, an enrollment flow and cross-sell links.
  - Qualifier: one atomic condition (field, operator, value) evaluated against a consumer profile.
  - WorkflowState: the snapshot of one consumer's run through the enrollment state machine.
  - Errors: the typed error taxonomy shared by every component (see errors.go).
*/
package domain
