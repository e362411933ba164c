/*
Package ports defines the driven ports (interfaces) used by contextplus nodes.

These interfaces decouple workflow persistence from concrete backends, so that
a StoredItem can keep its state in memory, in Redis or anywhere else a site
wires in through the state_store capability.

# Key Interfaces

  - StateStore: persists the workflow state of a node, keyed by its canonical path.
*/
package ports
