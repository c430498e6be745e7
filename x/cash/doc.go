/*
Package cash keeps the balances of every account of the chain.

There is no logic in the coins, except that the balance of any coin may
not go below zero. MoveCoins only moves value between wallets, it never
creates or destroys it. New value enters the system through the genesis
file only.
*/
package cash
