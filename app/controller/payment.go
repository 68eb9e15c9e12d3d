package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/innowise-solutions/ms-go-payments/app/client"
	"github.com/innowise-solutions/ms-go-payments/app/factory"
	"github.com/innowise-solutions/ms-go-payments/app/mapper"
	"github.com/innowise-solutions/ms-go-payments/app/security"
	"github.com/innowise-solutions/ms-go-payments/app/service"
	"github.com/innowise-solutions/ms-go-payments/app/types"
)

type userServiceClient interface {
	GetUserByEmail(ctx context.Context, email, authToken string) (*client.User, error)
}

type PaymentController struct {
	paymentService *service.PaymentService
	users          userServiceClient
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentService, users userServiceClient) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		users:          users,
		logger:         factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) CreatePayment(ctx echo.Context) error {
	req, err := types.NewCreatePaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.CreatePayment(ctx.Request().Context(), req, authToken(ctx))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create payment failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusCreated, mapper.PaymentToResponse(item))
}

func (c *PaymentController) GetAllPayments(ctx echo.Context) error {
	items, err := c.paymentService.GetAllPayments(ctx.Request().Context())
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List payments failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, mapper.PaymentsToResponse(items))
}

func (c *PaymentController) GetPaymentsByOrderID(ctx echo.Context) error {
	orderID := ctx.Param("orderId")
	if err := types.ValidateIdentifier("orderId", orderID); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.paymentService.GetPaymentsByOrderID(ctx.Request().Context(), orderID)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List payments by order failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, mapper.PaymentsToResponse(items))
}

func (c *PaymentController) GetPaymentsByUserID(ctx echo.Context) error {
	userID := ctx.Param("userId")
	if err := types.ValidateIdentifier("userId", userID); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.paymentService.GetPaymentsByUserID(ctx.Request().Context(), userID)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List payments by user failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, mapper.PaymentsToResponse(items))
}

func (c *PaymentController) GetPaymentsByStatuses(ctx echo.Context) error {
	statuses, err := types.ParseStatuses(ctx.QueryParams()["statuses"])
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.paymentService.GetPaymentsByStatuses(ctx.Request().Context(), statuses)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List payments by statuses failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, mapper.PaymentsToResponse(items))
}

func (c *PaymentController) GetTotalSum(ctx echo.Context) error {
	query, err := types.NewTotalSumQueryFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}
	if err := query.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	reqCtx := ctx.Request().Context()

	var response *types.TotalSumResponse
	switch {
	case query.StartDate == nil && len(query.Statuses) == 0:
		response, err = c.paymentService.GetTotalSum(reqCtx)
	case query.StartDate == nil:
		response, err = c.paymentService.GetTotalSumByStatuses(reqCtx, query.Statuses)
	case len(query.Statuses) == 0:
		response, err = c.paymentService.GetTotalSumByDatePeriod(reqCtx, *query.StartDate, *query.EndDate)
	default:
		response, err = c.paymentService.GetTotalSumByDatePeriodAndStatuses(reqCtx, *query.StartDate, *query.EndDate, query.Statuses)
	}
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Total sum query failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetMyTotalSum aggregates the calling user's payments. The caller's email
// comes from the bearer token; the user service maps it to the stable user
// id the payments are keyed by.
func (c *PaymentController) GetMyTotalSum(ctx echo.Context) error {
	query, err := types.NewTotalSumQueryFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}
	if err := query.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	token := authToken(ctx)
	email, err := security.EmailFromAuthorization(token)
	if err != nil {
		return c.writeError(ctx, http.StatusUnauthorized, err.Error())
	}

	user, err := c.users.GetUserByEmail(ctx.Request().Context(), email, token)
	if err != nil {
		if errors.Is(err, client.ErrUserNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "user not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("User lookup failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	userID := strconv.FormatInt(user.ID, 10)
	response, err := c.paymentService.GetTotalSumByUserID(ctx.Request().Context(), userID, query.StartDate, query.EndDate, query.Statuses)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("My total sum query failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, response)
}

func authToken(ctx echo.Context) string {
	return ctx.Request().Header.Get(echo.HeaderAuthorization)
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
