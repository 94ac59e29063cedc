package circulation

import "LIBRA-backend/internal/platform/apperr"

func errAlreadyBorrowed() error {
	return apperr.New(apperr.CodeAlreadyBorrowed, "You have already borrowed this book")
}

func errAlreadyReturned() error {
	return apperr.New(apperr.CodeAlreadyReturned, "Book already returned")
}

func errUnavailable() error {
	return apperr.New(apperr.CodeBookUnavailable, "Book is not available")
}
