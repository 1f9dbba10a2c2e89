package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/silverpine/guildbank/internal/domain"
	"github.com/silverpine/guildbank/internal/logger"
	"github.com/silverpine/guildbank/internal/usecase/services"
)

const defaultHistorySize = 10

// LedgerService is the slice of the ledger the command surface needs.
type LedgerService interface {
	Record(ctx context.Context, req services.RecordRequest) ([]domain.Transaction, error)
	Balance(ctx context.Context, accountID int64) (domain.Amounts, error)
	History(ctx context.Context, accountID int64, offset, limit int) ([]domain.Transaction, error)
	Pending(ctx context.Context) ([]domain.Transaction, error)
	Confirm(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// Dispatcher turns chat messages into ledger operations. It is transport
// free: the bot hands it the author id and raw content, it hands back the
// reply text.
type Dispatcher struct {
	prefix  string
	service LedgerService
	oracle  PrivilegeOracle
	format  *Formatter
}

func NewDispatcher(prefix string, service LedgerService, oracle PrivilegeOracle, format *Formatter) *Dispatcher {
	if prefix == "" {
		prefix = "+"
	}
	return &Dispatcher{
		prefix:  prefix,
		service: service,
		oracle:  oracle,
		format:  format,
	}
}

// Prefix returns the command prefix the dispatcher answers to.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Execute runs the command in content, if there is one. The second return
// is false when the message is not addressed to the bot.
func (d *Dispatcher) Execute(ctx context.Context, actorID int64, content string) (string, bool) {
	if !strings.HasPrefix(content, d.prefix) {
		return "", false
	}

	command, rest := splitWord(strings.TrimPrefix(content, d.prefix))

	var reply string
	switch command {
	case "bank":
		reply = d.bank(ctx, actorID, rest)
	case "account":
		reply = d.account(ctx, actorID, rest)
	default:
		return "", false
	}

	logger.Info("discord command handled", logger.Fields{
		"correlationId": uuid.NewString(),
		"actorId":       actorID,
		"command":       command,
	})
	return reply, true
}

func (d *Dispatcher) bank(ctx context.Context, actorID int64, rest string) string {
	if !d.oracle.IsPrivileged(actorID) {
		return "This command requires bank privileges."
	}

	sub, rest := splitWord(rest)
	switch sub {
	case "":
		return d.balance(ctx, domain.TreasuryAccount)
	case "add":
		amountString, description := splitWord(rest)
		return d.record(ctx, services.RecordRequest{
			ActorID:         actorID,
			SenderAccount:   domain.TreasuryAccount,
			ReceiverAccount: domain.TreasuryAccount,
			AmountString:    amountString,
			Description:     description,
			Privileged:      true,
		})
	case "send":
		return d.bankSend(ctx, actorID, rest)
	case "history", "log":
		return d.bankHistory(ctx, rest)
	case "delete", "remove":
		return d.delete(ctx, rest)
	case "pending":
		return d.pending(ctx)
	case "confirm":
		return d.confirm(ctx, rest)
	}
	return "Unknown bank command. Try add, send, history, delete, pending or confirm."
}

func (d *Dispatcher) account(ctx context.Context, actorID int64, rest string) string {
	sub, rest := splitWord(rest)
	switch sub {
	case "":
		return d.balance(ctx, actorID)
	case "add":
		amountString, description := splitWord(rest)
		return d.record(ctx, services.RecordRequest{
			ActorID:         actorID,
			SenderAccount:   actorID,
			ReceiverAccount: actorID,
			AmountString:    amountString,
			Description:     description,
		})
	case "history", "log":
		return d.accountHistory(ctx, actorID, rest)
	case "send":
		return d.send(ctx, actorID, rest)
	}
	return "Unknown account command. Try add, history or send."
}

// bankSend moves treasury funds to a user account. It runs privileged, so
// negative amounts (clawbacks) are allowed and the pair books confirmed.
func (d *Dispatcher) bankSend(ctx context.Context, actorID int64, rest string) string {
	receiverToken, rest := splitWord(rest)
	receiver, err := parseAccountRef(receiverToken)
	if err != nil {
		return "Please mention the account holder you want to send to."
	}

	amountString, description := splitWord(rest)
	return d.record(ctx, services.RecordRequest{
		ActorID:         actorID,
		SenderAccount:   domain.TreasuryAccount,
		ReceiverAccount: receiver,
		AmountString:    amountString,
		Description:     description,
		Privileged:      true,
	})
}

func (d *Dispatcher) send(ctx context.Context, actorID int64, rest string) string {
	receiverToken, rest := splitWord(rest)
	receiver, err := parseAccountRef(receiverToken)
	if err != nil {
		return "Please mention the account holder you want to send to."
	}

	amountString, description := splitWord(rest)
	if strings.Contains(amountString, "-") {
		return "You can only send positive amounts"
	}
	return d.record(ctx, services.RecordRequest{
		ActorID:         actorID,
		SenderAccount:   actorID,
		ReceiverAccount: receiver,
		AmountString:    amountString,
		Description:     description,
	})
}

func (d *Dispatcher) record(ctx context.Context, req services.RecordRequest) string {
	recorded, err := d.service.Record(ctx, req)
	if err != nil {
		return errorReply(err)
	}

	primary := recorded[0]
	header := "Transaction added"
	if !primary.Confirmed {
		header += " (pending confirmation)"
	}
	return header + "\n" + d.format.Transaction(primary, false)
}

func (d *Dispatcher) balance(ctx context.Context, accountID int64) string {
	balance, err := d.service.Balance(ctx, accountID)
	if err != nil {
		return errorReply(err)
	}
	return "**Balance**\n" + d.format.Balance(balance)
}

func (d *Dispatcher) bankHistory(ctx context.Context, rest string) string {
	tokens := strings.Fields(rest)

	account := domain.TreasuryAccount
	if len(tokens) > 2 {
		ref, err := parseAccountRef(tokens[2])
		if err != nil {
			return "Please mention the account holder to show the history of."
		}
		account = ref
	}

	start, num, err := parseWindow(tokens)
	if err != nil {
		return "Start and count must be numbers."
	}
	return d.history(ctx, account, start, num)
}

func (d *Dispatcher) accountHistory(ctx context.Context, actorID int64, rest string) string {
	start, num, err := parseWindow(strings.Fields(rest))
	if err != nil {
		return "Start and count must be numbers."
	}
	return d.history(ctx, actorID, start, num)
}

func (d *Dispatcher) history(ctx context.Context, accountID int64, offset, limit int) string {
	records, err := d.service.History(ctx, accountID, offset, limit)
	if err != nil {
		return errorReply(err)
	}
	if len(records) == 0 {
		return "No transactions found."
	}

	parts := make([]string, 0, len(records)+1)
	parts = append(parts, "**Transaction Log**")
	for _, tx := range records {
		parts = append(parts, d.format.Transaction(tx, false))
	}
	return strings.Join(parts, "\n\n")
}

func (d *Dispatcher) pending(ctx context.Context) string {
	records, err := d.service.Pending(ctx)
	if err != nil {
		return errorReply(err)
	}
	if len(records) == 0 {
		return "No pending transactions."
	}

	parts := make([]string, 0, len(records)+1)
	parts = append(parts, "**Pending Transactions**")
	for _, tx := range records {
		parts = append(parts, d.format.Transaction(tx, true))
	}
	return strings.Join(parts, "\n\n")
}

func (d *Dispatcher) confirm(ctx context.Context, rest string) string {
	idToken, _ := splitWord(rest)
	id, err := strconv.ParseInt(idToken, 10, 64)
	if err != nil {
		return "Please provide a transaction id."
	}

	if err := d.service.Confirm(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Sprintf("Transaction %d not found", id)
		}
		return errorReply(err)
	}
	return fmt.Sprintf("Transaction %d confirmed", id)
}

func (d *Dispatcher) delete(ctx context.Context, rest string) string {
	idToken, _ := splitWord(rest)
	id, err := strconv.ParseInt(idToken, 10, 64)
	if err != nil {
		return "Please provide a transaction id."
	}

	if err := d.service.Delete(ctx, id); err != nil {
		return errorReply(err)
	}
	return "Success"
}

func errorReply(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		return "Please provide a transaction string and a description"
	case errors.Is(err, domain.ErrInvalidFormat), errors.Is(err, domain.ErrDuplicateDenomination):
		return "Invalid transaction string: " + err.Error()
	case errors.Is(err, domain.ErrNegativeAmount):
		return "You can only send positive amounts"
	case errors.Is(err, domain.ErrNotFound):
		return "Transaction not found"
	default:
		return "Something went wrong, please try again later."
	}
}

// splitWord returns the first whitespace-separated word and the trimmed
// remainder, preserving inner spacing of the remainder.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

// parseWindow reads the optional start and count tokens of a history
// command.
func parseWindow(tokens []string) (start, num int, err error) {
	start, num = 0, defaultHistorySize
	if len(tokens) > 0 {
		start, err = strconv.Atoi(tokens[0])
		if err != nil {
			return 0, 0, err
		}
	}
	if len(tokens) > 1 {
		num, err = strconv.Atoi(tokens[1])
		if err != nil {
			return 0, 0, err
		}
	}
	return start, num, nil
}

// parseAccountRef accepts a raw account id or a Discord mention of the
// form <@id> or <@!id>.
func parseAccountRef(token string) (int64, error) {
	raw := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(token, "<@"), "!"), ">")
	return strconv.ParseInt(raw, 10, 64)
}
