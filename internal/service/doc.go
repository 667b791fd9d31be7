// Package service contains the application use cases of the interview
// coach. It orchestrates domain objects, repositories (defined in
// internal/store), the dispatcher and the validated generation pipeline.
//
// Key components:
//
// 1. AttemptService:
//   - Starts attempts, stores answer audio and queues transcription
//   - Completes attempts and scores them inline or through the scoring lane
//
// 2. ScoringService:
//   - Waits for outstanding transcripts, scores every question through the
//     validated pipeline, aggregates totals and writes feedback
//
// 3. QuestionService:
//   - Generates questions from a role description or a parsed document and
//     normalizes them to a fixed count before insertion
//
// Services receive dependencies through constructor injection and depend on
// store interfaces, never on concrete infrastructure.
package service
