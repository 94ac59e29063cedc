package graph

import (
	"context"
	"log"
	"strconv"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"LIBRA-backend/internal/library/circulation"
	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/middleware"
)

type Resolver struct {
	svc *circulation.Service
}

// ---- エンベロープ共通部 ----

type errorResolver struct{ body apperr.ErrorBody }

func (e *errorResolver) Code() string    { return string(e.body.Code) }
func (e *errorResolver) Details() string { return e.body.Details }

type envelope struct {
	success bool
	message string
	err     *errorResolver
}

func (e envelope) Success() bool         { return e.success }
func (e envelope) Message() string       { return e.message }
func (e envelope) Error() *errorResolver { return e.err }

func ok(msg string) envelope { return envelope{success: true, message: msg} }

func fail(ctx context.Context, op string, err error) envelope {
	if apperr.IsInternal(err) {
		log.Printf("[ERROR] req=%s graphql %s: %+v", middleware.RequestIDFrom(ctx), op, err)
	}
	env := apperr.Fail(err)
	return envelope{message: env.Message, err: &errorResolver{body: *env.Error}}
}

func parseID(id graphql.ID) (int64, bool) {
	v, err := strconv.ParseInt(string(id), 10, 64)
	return v, err == nil && v > 0
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// ---- Transaction ----

type transactionResolver struct{ t circulation.TransactionResponse }

func (r *transactionResolver) ID() graphql.ID {
	return graphql.ID(strconv.FormatInt(r.t.ID, 10))
}
func (r *transactionResolver) TransactionUlid() string { return r.t.ULID }
func (r *transactionResolver) MemberID() graphql.ID {
	return graphql.ID(strconv.FormatInt(r.t.MemberID, 10))
}
func (r *transactionResolver) BookID() graphql.ID {
	return graphql.ID(strconv.FormatInt(r.t.BookID, 10))
}
func (r *transactionResolver) BorrowDate() string { return formatTime(r.t.BorrowDate) }
func (r *transactionResolver) DueDate() string    { return formatTime(r.t.DueDate) }
func (r *transactionResolver) ReturnDate() *string {
	if r.t.ReturnDate == nil {
		return nil
	}
	s := formatTime(*r.t.ReturnDate)
	return &s
}
func (r *transactionResolver) Status() string      { return string(r.t.Status) }
func (r *transactionResolver) DaysLate() int32     { return int32(r.t.DaysLate) }
func (r *transactionResolver) FineAmount() float64 { return float64(r.t.FineAmount) }
func (r *transactionResolver) Notes() *string      { return r.t.Notes }

type transactionPayload struct {
	envelope
	data *transactionResolver
}

func (p *transactionPayload) Data() *transactionResolver { return p.data }

// ---- FineStatus ----

type fineStatusResolver struct{ f circulation.FineStatus }

func (r *fineStatusResolver) TransactionID() graphql.ID {
	return graphql.ID(strconv.FormatInt(r.f.TransactionID, 10))
}
func (r *fineStatusResolver) Status() string        { return string(r.f.Status) }
func (r *fineStatusResolver) DueDate() string       { return r.f.DueDate }
func (r *fineStatusResolver) DaysRemaining() int32  { return int32(r.f.DaysRemaining) }
func (r *fineStatusResolver) DaysLate() int32       { return int32(r.f.DaysLate) }
func (r *fineStatusResolver) CurrentFine() float64  { return float64(r.f.CurrentFine) }
func (r *fineStatusResolver) FineFormatted() string { return r.f.FineFormatted }
func (r *fineStatusResolver) Settled() bool         { return r.f.Settled }

type finePayload struct {
	envelope
	data *fineStatusResolver
}

func (p *finePayload) Data() *fineStatusResolver { return p.data }

// ---- TransactionList ----

type transactionListResolver struct {
	res db.ListResult[circulation.TransactionResponse]
}

func (r *transactionListResolver) Items() []*transactionResolver {
	out := make([]*transactionResolver, 0, len(r.res.Items))
	for _, t := range r.res.Items {
		out = append(out, &transactionResolver{t: t})
	}
	return out
}
func (r *transactionListResolver) Total() int32      { return int32(r.res.Total) }
func (r *transactionListResolver) NextOffset() int32 { return int32(r.res.NextOffset) }

type transactionListPayload struct {
	envelope
	data *transactionListResolver
}

func (p *transactionListPayload) Data() *transactionListResolver { return p.data }

// ---- Mutation ----

func (r *Resolver) BorrowBook(ctx context.Context, args struct {
	BookID graphql.ID
	Notes  *string
}) *transactionPayload {
	bookID, valid := parseID(args.BookID)
	if !valid {
		return &transactionPayload{envelope: fail(ctx, "borrowBook", apperr.Invalid("bookId must be a positive number"))}
	}
	res, err := r.svc.Borrow(ctx, auth.FromContext(ctx), bookID, args.Notes)
	if err != nil {
		return &transactionPayload{envelope: fail(ctx, "borrowBook", err)}
	}
	return &transactionPayload{envelope: ok(res.Message), data: &transactionResolver{t: res.Transaction}}
}

func (r *Resolver) ReturnBook(ctx context.Context, args struct{ TransactionID graphql.ID }) *transactionPayload {
	res, err := r.svc.Return(ctx, auth.FromContext(ctx), string(args.TransactionID))
	if err != nil {
		return &transactionPayload{envelope: fail(ctx, "returnBook", err)}
	}
	return &transactionPayload{envelope: ok(res.Message), data: &transactionResolver{t: res.Transaction}}
}

// ---- Query ----

func (r *Resolver) CheckFine(ctx context.Context, args struct{ TransactionID graphql.ID }) *finePayload {
	res, err := r.svc.CheckFine(ctx, auth.FromContext(ctx), string(args.TransactionID))
	if err != nil {
		return &finePayload{envelope: fail(ctx, "checkFine", err)}
	}
	return &finePayload{envelope: ok(res.Message), data: &fineStatusResolver{f: res}}
}

func (r *Resolver) MyTransactions(ctx context.Context, args struct {
	Status *string
	Limit  *int32
	Offset *int32
}) *transactionListPayload {
	p := auth.FromContext(ctx)
	f := circulation.TransactionFilter{}
	if args.Status != nil {
		f.Status = circulation.Status(*args.Status)
	}
	// 管理者でも自分の分だけ
	if p.Authenticated() {
		id := p.ID
		f.MemberID = &id
	}
	pg := db.Page{}
	if args.Limit != nil {
		pg.Limit = int(*args.Limit)
	}
	if args.Offset != nil {
		pg.Offset = int(*args.Offset)
	}
	res, err := r.svc.List(ctx, p, f, pg)
	if err != nil {
		return &transactionListPayload{envelope: fail(ctx, "myTransactions", err)}
	}
	return &transactionListPayload{envelope: ok("OK"), data: &transactionListResolver{res: res}}
}
