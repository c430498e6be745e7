/*
Package deal implements a deal ledger: a buyer locks a deposit for a
provider, then either confirms the delivery, releasing the deposit to the
provider, or claims it back once the deadline is reached.

	(none) --create--> active --confirm (buyer, any time)--------> confirmed
	                          \-claim refund (buyer, deadline reached)-> refunded

Confirmed and refunded are terminal. Deals are never deleted, a settled deal
stays queryable as an audit record. There is no background process: an
active deal past its deadline stays active until one of the two terminal
operations is executed.

Confirmation has no deadline check while a refund requires the deadline to
be reached. Once the deadline passes, the buyer decides alone which of the
two happens and the provider has no way to force a settlement. No grace
period or arbitration is implemented.

Deposits are kept by a Custody implementation, CashCustody by default, on a
per deal address derived from the deal id.
*/
package deal
