// Package domain defines the core entities of the interview coach: resource
// keys and jobs for the orchestration subsystem, and the attempt, question,
// answer, document and scoring records that flow through it.
package domain
