// Package services is the application core behind the driving ports.
//
// A generation request flows GenerationService -> Cascade -> ModelGateway.
// The gateway makes one call against one tier. The cascade owns retries,
// tier escalation and repair prompts. GenerationService gathers reference
// context, runs hybrid mode and applies the degraded-record policy.
package services
