// Package decisionengine implements the decision lifecycle inside the
// council-governance context.
//
// The module owns the draft → proposed → approved/rejected → implemented
// state machine, per-user voting with an enforced one-vote-per-user
// invariant, quorum computation, and decision event production through
// outbox-backed workers. Business rules live in the application and domain
// layers; infrastructure stays behind ports and adapters.
package decisionengine
