package inmemdb

import (
	"strings"
	"sync"

	"github.com/eduquest/academy/core/account"
)

type (
	DB struct {
		account *accountTable
	}

	accountRow struct {
		account  account.Account
		invoices []account.Invoice
	}

	accountTable struct {
		sync.RWMutex
		table map[string]*accountRow // keyed by lower-cased username
	}
)

func Open() *DB {
	return &DB{
		account: &accountTable{table: make(map[string]*accountRow)},
	}
}

func key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
