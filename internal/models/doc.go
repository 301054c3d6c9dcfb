// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - Event: a shared ledger with a base currency and an invite code
//   - Participant: a member of an event who can pay or owe
//   - Expense: money fronted by one participant, split over several
//   - Share: one participant's portion of an expense, in minor units
//   - Debt: a settlement payment from a debtor to a creditor
//
// # Design Principles
//
//  1. **Integer money**: every amount is an int64 count of minor units
//     (cents for EUR/USD). Decimals only appear while converting currencies.
//  2. **Value semantics**: the calculator reads models and returns new values;
//     it never mutates its inputs.
//  3. **IDs over pointers**: relationships use ID strings, equality is by ID.
package models
