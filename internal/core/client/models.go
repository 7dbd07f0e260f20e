package client

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/shopspring/decimal"
)

const maxNameLen = 50

// Client is a wallet holder. Balance is only changed by transfers.
type Client struct {
	WalletNumber string
	Surname      string
	Name         string
	Patronymic   string
	Balance      decimal.Decimal
}

// NewClient is the data required to open a wallet. WalletNumber is optional;
// a fresh one is generated when it is empty.
type NewClient struct {
	WalletNumber string
	Surname      string
	Name         string
	Patronymic   string
	Balance      decimal.Decimal
}

// UpdateClient edits personal fields. Nil fields are left untouched.
type UpdateClient struct {
	Surname    *string
	Name       *string
	Patronymic *string
}

// Filter selects clients whose fields contain every non empty value,
// ignoring case.
type Filter struct {
	Surname    string
	Name       string
	Patronymic string
}

func (f Filter) IsEmpty() bool {
	return f.Surname == "" && f.Name == "" && f.Patronymic == ""
}

func (c Client) validate() error {
	switch {
	case strings.TrimSpace(c.Surname) == "" || utf8.RuneCountInString(c.Surname) > maxNameLen:
		return fieldError("surname", fmt.Sprintf("must have 1 to %d characters", maxNameLen))
	case strings.TrimSpace(c.Name) == "" || utf8.RuneCountInString(c.Name) > maxNameLen:
		return fieldError("name", fmt.Sprintf("must have 1 to %d characters", maxNameLen))
	case utf8.RuneCountInString(c.Patronymic) > maxNameLen:
		return fieldError("patronymic", fmt.Sprintf("must have at most %d characters", maxNameLen))
	}

	return nil
}

func fieldError(field, msg string) error {
	return &ledger.FieldError{Err: ErrInvalidArgument, Field: field, Msg: msg}
}

func (uc UpdateClient) apply(c Client) Client {
	if uc.Surname != nil {
		c.Surname = *uc.Surname
	}
	if uc.Name != nil {
		c.Name = *uc.Name
	}
	if uc.Patronymic != nil {
		c.Patronymic = *uc.Patronymic
	}
	return c
}
