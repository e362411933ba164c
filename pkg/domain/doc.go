/*
Package domain contains the core models shared by every contextplus behaviour.

It defines the tree node contract used for URL traversal, the events emitted by
nodes, the closed set of capabilities that can be acquired from ancestors, the
workflow transition table and the error taxonomy. This package is kept pure and
free of I/O, following the same Hexagonal Architecture split as the adapters.

# Key Entities

  - Node: an element of the traversal tree (Name + Parent).
  - Event: a named, immutable notification targeted at a node.
  - Capability: the name of something a node can ask its ancestors for.
  - Transitions: the action table driving workflow state changes.
*/
package domain
