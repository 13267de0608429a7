/*
Package runtime drives enrollment workflows through their state machine.

A workflow is positioned at the step it will execute next:

	initiated -> eligibility_check -> quote_generation -> cross_sell -> enrollment -> completed

Advance executes exactly one step on a clone of the state. A successful step commits
its data and the forward transition together; a failing step commits nothing but an
error entry and the move to failed. Resume re-enters a failed workflow.

The runtime is stateless: callers own persistence and must serialize calls per workflow
(see pkg/session).
*/
package runtime
