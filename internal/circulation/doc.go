// Package circulation implements the loan lifecycle: borrowing a copy of a
// book and returning it, with overdue fines charged at return time.
//
// # Loan State
//
// A loan is a borrowing_records row. It is open while return_date is NULL
// and closed once returned; closed loans are never reopened.
//
//	OPEN --Return--> CLOSED
//
// # Atomicity
//
// Borrow and Return each run in a single database transaction. Preconditions
// are read first, then every mutation is a conditional statement whose
// affected-row count is checked, so two requests racing for the last copy
// cannot both succeed:
//
//	UPDATE books SET current_stock = current_stock - 1
//	 WHERE book_id = ? AND current_stock > 0
//
// The partial unique index uniq_open_loan backs the one-open-loan-per-book
// rule in the database itself.
//
// # Dates and Fines
//
// Loan dates are calendar days at midnight UTC. Overdue days are the whole
// days between the due date and the return date, floored at zero, and the
// fine is overdue days times the daily rate.
package circulation
