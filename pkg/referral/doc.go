// Package referral defines the multi-level referral model: accounts, up-line
// edges, balances, the append-only transaction log and the fixed commission
// rate table.
package referral
