// Package services implements the driving port interfaces.
// Services contain the core business logic: ingestion, retrieval,
// the RAG and agent engines, and the orchestrator that races them.
// They depend only on driven ports, never on concrete adapters.
package services
