// Package graph は貸出・返却・延滞金照会の GraphQL 入口。
// 返す形は REST と同じエンベロープ {success, message, data, error{code, details}}。
package graph

import (
	graphql "github.com/graph-gophers/graphql-go"

	"LIBRA-backend/internal/library/circulation"
)

const schemaSDL = `
schema {
	query: Query
	mutation: Mutation
}

type Query {
	checkFine(transactionId: ID!): FinePayload!
	myTransactions(status: String, limit: Int, offset: Int): TransactionListPayload!
}

type Mutation {
	borrowBook(bookId: ID!, notes: String): TransactionPayload!
	returnBook(transactionId: ID!): TransactionPayload!
}

type Error {
	code: String!
	details: String!
}

type Transaction {
	id: ID!
	transactionUlid: String!
	memberId: ID!
	bookId: ID!
	borrowDate: String!
	dueDate: String!
	returnDate: String
	status: String!
	daysLate: Int!
	fineAmount: Float!
	notes: String
}

type TransactionPayload {
	success: Boolean!
	message: String!
	data: Transaction
	error: Error
}

type FineStatus {
	transactionId: ID!
	status: String!
	dueDate: String!
	daysRemaining: Int!
	daysLate: Int!
	currentFine: Float!
	fineFormatted: String!
	settled: Boolean!
}

type FinePayload {
	success: Boolean!
	message: String!
	data: FineStatus
	error: Error
}

type TransactionList {
	items: [Transaction!]!
	total: Int!
	nextOffset: Int!
}

type TransactionListPayload {
	success: Boolean!
	message: String!
	data: TransactionList
	error: Error
}
`

// NewSchema は circulation.Service を解決先にしたスキーマを作る
func NewSchema(svc *circulation.Service) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, &Resolver{svc: svc})
}
