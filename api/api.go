package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/0xcafe-io/iz"
	"github.com/google/uuid"

	"github.com/paisatrack/paisatrack/internal/auth"
	"github.com/paisatrack/paisatrack/internal/budget"
	"github.com/paisatrack/paisatrack/internal/contextutil"
	"github.com/paisatrack/paisatrack/internal/importer"
	"github.com/paisatrack/paisatrack/logging"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "x-auth-token"

type Api struct {
	Service *budget.BudgetTracker
}

func NewApi(service *budget.BudgetTracker) *Api {
	return &Api{
		Service: service,
	}
}

// authorize verifies the session token of a protected request. It
// returns the bound user id and a request context carrying a trace id,
// or a ready 401 responder. No handler mutates anything before this
// check passes.
func (api *Api) authorize(r *iz.Request) (string, context.Context, iz.Responder) {
	ctx := contextutil.WithTraceID(r.Context(), uuid.New().String())

	token := r.Header.Get(TokenHeader)
	if token == "" {
		return "", ctx, iz.Respond().Status(401).JSON(ErrorBody{Msg: "No token, authorization denied"})
	}

	userId, err := api.Service.CheckToken(token)
	if err != nil {
		return "", ctx, iz.Respond().Status(401).JSON(ErrorBody{Msg: "Token is not valid"})
	}
	return userId, ctx, nil
}

func (api *Api) failure(err error) iz.Responder {
	status := httpStatusFromError(err)
	if status == 500 {
		logging.Logger.Errorf("request failed: %v", err)
	}
	return iz.Respond().Status(status).JSON(ErrorBody{Msg: clientMessage(err)})
}

func (api *Api) RegisterUserHandler(r *iz.Request) iz.Responder {
	ctx := contextutil.WithTraceID(r.Context(), uuid.New().String())

	var registerReq RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		msg := fmt.Sprintf("invalid request body: %s", err.Error())
		return iz.Respond().Status(400).JSON(ErrorBody{Msg: msg})
	}

	newUser := auth.NewUser{
		Email:         registerReq.Email,
		PasswordPlain: registerReq.Password,
	}

	token, err := api.Service.RegisterUser(ctx, newUser)
	if err != nil {
		return api.failure(err)
	}
	return iz.Respond().Status(201).JSON(TokenResponse{Token: token})
}

func (api *Api) LoginUserHandler(r *iz.Request) iz.Responder {
	ctx := contextutil.WithTraceID(r.Context(), uuid.New().String())

	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		return iz.Respond().Status(400).JSON(ErrorBody{Msg: "invalid request body"})
	}

	credentials := auth.UserCredentialsPure{
		Email:         loginReq.Email,
		PasswordPlain: loginReq.Password,
	}

	token, err := api.Service.LoginUser(ctx, credentials)
	if err != nil {
		return api.failure(err)
	}
	return iz.Respond().Status(200).JSON(TokenResponse{Token: token})
}

func (api *Api) GetAccountHandler(r *iz.Request) iz.Responder {
	userId, ctx, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	user, err := api.Service.GetAccount(ctx, userId)
	if err != nil {
		return api.failure(err)
	}
	return iz.Respond().Status(200).JSON(UserToHttp(user))
}

func (api *Api) GetBudgetsHandler(r *iz.Request) iz.Responder {
	userId, ctx, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	budgets, err := api.Service.GetBudgets(ctx, userId)
	if err != nil {
		return api.failure(err)
	}
	return iz.Respond().Status(200).JSON(BudgetsToHttp(budgets))
}

func (api *Api) SetupBudgetsHandler(r *iz.Request) iz.Responder {
	userId, ctx, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	var setupReq SetupBudgetsRequest
	if err := json.NewDecoder(r.Body).Decode(&setupReq); err != nil {
		return iz.Respond().Status(400).JSON(ErrorBody{Msg: "Invalid budget data provided."})
	}
	if setupReq.Budgets == nil {
		return iz.Respond().Status(400).JSON(ErrorBody{Msg: "Invalid budget data provided."})
	}

	budgets, err := api.Service.SetupBudgets(ctx, userId, budgetItemsToRequests(setupReq.Budgets))
	if err != nil {
		return api.failure(err)
	}
	return iz.Respond().Status(200).JSON(BudgetsToHttp(budgets))
}

func (api *Api) MergeBudgetsHandler(r *iz.Request) iz.Responder {
	userId, ctx, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	var mergeReq SetupBudgetsRequest
	if err := json.NewDecoder(r.Body).Decode(&mergeReq); err != nil {
		return iz.Respond().Status(400).JSON(ErrorBody{Msg: "Invalid budget data provided."})
	}
	if mergeReq.Budgets == nil {
		return iz.Respond().Status(400).JSON(ErrorBody{Msg: "Invalid budget data provided."})
	}

	budgets, err := api.Service.MergeBudgets(ctx, userId, budgetItemsToRequests(mergeReq.Budgets))
	if err != nil {
		return api.failure(err)
	}
	return iz.Respond().Status(200).JSON(BudgetsToHttp(budgets))
}

func (api *Api) RecordTransactionHandler(r *iz.Request) iz.Responder {
	userId, ctx, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	var txnReq CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&txnReq); err != nil {
		logging.Logger.Errorf("failed to parse record transaction request: %v", err)
		return iz.Respond().Status(400).JSON(ErrorBody{Msg: "Please provide category, amount, and description"})
	}

	transaction := budget.TransactionRequest{
		Category:    txnReq.Category,
		Description: txnReq.Description,
		Amount:      txnReq.Amount,
	}

	budgets, err := api.Service.RecordTransaction(ctx, userId, transaction)
	if err != nil {
		return api.failure(err)
	}
	return iz.Respond().Status(200).JSON(BudgetsToHttp(budgets))
}

func (api *Api) ImportStatementHandler(r *iz.Request) iz.Responder {
	userId, ctx, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	entries, err := importer.Parse(r.Body)
	if err != nil {
		return api.failure(err)
	}

	result, err := api.Service.ImportStatement(ctx, userId, entries)
	if err != nil {
		return api.failure(err)
	}

	resp := ImportResponse{
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Budgets:  BudgetsToHttp(result.Budgets).Budgets,
	}
	return iz.Respond().Status(200).JSON(resp)
}

func (api *Api) GetStatisticsHandler(r *iz.Request) iz.Responder {
	userId, ctx, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	summary, err := api.Service.GetSummary(ctx, userId)
	if err != nil {
		return api.failure(err)
	}
	return iz.Respond().Status(200).JSON(SummaryToHttp(summary))
}

func (api *Api) LinkAccountHandler(r *iz.Request) iz.Responder {
	userId, ctx, denied := api.authorize(r)
	if denied != nil {
		return denied
	}

	var accountReq LinkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&accountReq); err != nil {
		return iz.Respond().Status(400).JSON(ErrorBody{Msg: "Please provide all bank account details."})
	}

	account := budget.BankAccountRequest{
		BankName:      accountReq.BankName,
		AccountNumber: accountReq.AccountNumber,
		IFSC:          accountReq.IFSC,
	}

	accounts, err := api.Service.LinkBankAccount(ctx, userId, account)
	if err != nil {
		return api.failure(err)
	}
	return iz.Respond().Status(200).JSON(AccountsToHttp(accounts))
}

func budgetItemsToRequests(items []BudgetItem) []budget.BudgetItemRequest {
	requests := make([]budget.BudgetItemRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, budget.BudgetItemRequest{
			Category: item.Category,
			Limit:    item.Limit,
		})
	}
	return requests
}
