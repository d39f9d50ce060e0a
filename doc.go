// Package docchat answers questions about uploaded documents.
//
// A Session ingests a batch of PDF, DOCX and XLSX files, extracting each one
// concurrently and joining the successful texts into one context, then runs a
// conversation in which every answer is grounded in that context only.
//
//	session, err := docchat.NewSession(docchat.WithAIConfig(ai.DefaultConfig()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	batch, err := session.Submit(ctx, files)
//	reply, err := session.Ask(ctx, "What does the report conclude?")
//
// The building blocks live in subpackages:
//
//   - extract: per-format text extraction and dispatch by extension
//   - ingestion: concurrent batch extraction and context aggregation
//   - conversation: the single-question-in-flight controller
//   - ai: the inference abstraction with gemini and openai backends
//   - storage: chat history persistence (badger, in memory)
//   - server: HTTP API over a Session
package docchat
