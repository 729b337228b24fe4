/*
Package ports defines the driven ports (interfaces) of the slicer engine.

These interfaces decouple the conversion pipeline from external implementations,
allowing run history to live in memory, on disk, in Redis or in SQLite.

# Key Interfaces

  - RunStore: persists the record of every conversion run.
  - RunStoreContract: a reusable test suite every RunStore adapter must pass.
*/
package ports
