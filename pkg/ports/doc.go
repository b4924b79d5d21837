/*
Package ports defines the driven ports (interfaces) of the dialogue and
commission cores.

These interfaces decouple the core logic from external implementations, allowing
the engines to work with various storage backends and collaborators.

# Key Interfaces

  - SessionStore: persists and loads a dialogue Session.
  - DistributedLocker: provides distributed locking for concurrent session access.
  - Ledger / LedgerTx: referral edges, balances and transactions under one atomic transaction.
  - AccountStore: registered accounts and their referral codes.
  - Completer: opaque text completion used to phrase outbound messages.
*/
package ports
