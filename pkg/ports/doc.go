/*
Package ports defines the driven ports (interfaces) of the enrollment engine.

These interfaces decouple the orchestration core from carrier integrations and
from where workflow state is kept.

# Key Interfaces

  - Provider: a carrier backend able to check eligibility, price, enroll and report status.
  - WorkflowStore: keeps WorkflowState snapshots between steps.

Adapters prove compliance by running RunProviderContract and RunWorkflowStoreContract
from their own tests.
*/
package ports
