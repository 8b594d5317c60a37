// Package txn holds the value types exchanged between the verification
// processes: operands, transactions and responses.
//
// This package contains type definitions and their serialisation only. All
// other internal packages import txn; txn imports nothing internal.
//
// Key design constraints:
//   - Transactions are immutable values; pass them by value
//   - Parity bits are bool (true = odd number of set bits)
//   - All JSON tags use snake_case
//   - Seq numbers come from the dispatch counter, never wall-clock time
package txn
