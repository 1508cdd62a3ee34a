// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages accounts and their storage in memory.
// It follows the flow as below:
//
//	       [ State ]  --- miss --->  [ fork.Backend ] ---> remote node
//	           |
//	  [ objects by address ]  (accounts, storage tries, shared code store)
//	           |
//	      [ dirty set ]
//	           |
//	  [ account trie ] ---> root
//
// Every account keeps its storage in a persistent trie, and the account
// trie is the cache of the state root. Cloning a state copies the small
// per-account records only, all tries and code are shared.
//
// Zero storage values are never stored, so writing zero is the same as
// never writing. Accounts with zero balance, zero nonce, no code and no
// storage are removed.
package state
