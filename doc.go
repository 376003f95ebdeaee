// Package kasa provides the data layer of a local-first personal finance
// tracker. It is designed to be auditable and fast to interact with: reads
// are served from a tagged entity cache, and writes are applied to that
// cache optimistically before the backing store confirms them.
//
// The core functionalities include:
//   - Ledger Entries: Recording expenses, incomes and transfers between
//     accounts in a chronological, human-readable record (JSONL or SQLite).
//   - Entity Cache: A signature-keyed, tag-invalidated store of query results
//     with synchronous patch/undo support (package cache).
//   - Optimistic Mutations: Speculative cache updates that are reconciled on
//     success and rolled back exactly on failure (package mutate).
//   - Failure Taxonomy & Retries: A typed error classification with a bounded
//     record log and an exponentially backed-off retry queue (package fault).
//   - Progress & Notifications: Tracking of concurrent long-running
//     operations with aggregate progress and ETA, surfaced as short-lived
//     notifications (packages progress and notify).
//
// This package serves as the foundational logic for the `ksa` command-line
// tool, ensuring that all operations are consistent and based on a single
// source of truth.
package kasa
