package sqlxrepos_test

import (
	"testing"

	sqlxrepos "github.com/eduquest/academy/storage/database/sqlx"
	"github.com/eduquest/academy/tests"
	"github.com/eduquest/academy/tests/storetest"
)

func TestAccountRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	storetest.Run(t, sqlxrepos.NewAccountRepository(db))
}
