// Package repomanager vends repositories bound to a database handle or an
// open transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bankledger/internal/dbx"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/outbox"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	Outbox(db dbx.DBTX) outbox.Repository
}
