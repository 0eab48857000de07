package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
	"github.com/ledgerbridge/asset-gateway/internal/ledger/classify"
)

type assetRequest struct {
	ID             string `json:"id"`
	Color          string `json:"color"`
	Size           int    `json:"size"`
	Owner          string `json:"owner"`
	AppraisedValue int    `json:"appraisedValue"`
}

type errorResponse struct {
	Message       string `json:"message"`
	TransactionID string `json:"transactionId,omitempty"`
}

type transactionResponse struct {
	TransactionID  string `json:"transactionId"`
	ValidationCode string `json:"validationCode"`
}

func (s *Server) createAsset(c echo.Context) error {
	var req assetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}
	if req.ID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "asset id is required"})
	}

	txID, err := s.ledger.Submit(c.Request().Context(), "CreateAsset",
		req.ID, req.Color, strconv.Itoa(req.Size), req.Owner, strconv.Itoa(req.AppraisedValue))
	if err != nil {
		return s.ledgerError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"transactionId": txID})
}

func (s *Server) updateAsset(c echo.Context) error {
	assetID := c.Param("assetId")

	var req assetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}
	if req.ID != "" && req.ID != assetID {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "asset id mismatch"})
	}

	txID, err := s.ledger.Submit(c.Request().Context(), "UpdateAsset",
		assetID, req.Color, strconv.Itoa(req.Size), req.Owner, strconv.Itoa(req.AppraisedValue))
	if err != nil {
		return s.ledgerError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"transactionId": txID})
}

func (s *Server) deleteAsset(c echo.Context) error {
	txID, err := s.ledger.Submit(c.Request().Context(), "DeleteAsset", c.Param("assetId"))
	if err != nil {
		return s.ledgerError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"transactionId": txID})
}

func (s *Server) getAsset(c echo.Context) error {
	result, err := s.ledger.Evaluate(c.Request().Context(), "ReadAsset", c.Param("assetId"))
	if err != nil {
		return s.ledgerError(c, err)
	}
	return c.JSONBlob(http.StatusOK, result)
}

func (s *Server) getAllAssets(c echo.Context) error {
	result, err := s.ledger.Evaluate(c.Request().Context(), "GetAllAssets")
	if err != nil {
		return s.ledgerError(c, err)
	}
	if len(result) == 0 {
		result = []byte("[]")
	}
	return c.JSONBlob(http.StatusOK, result)
}

func (s *Server) getTransaction(c echo.Context) error {
	txID := c.Param("txId")

	code, err := s.querier.TransactionValidationCode(c.Request().Context(), txID)
	if err != nil {
		if classify.Classify(err) == classify.TransactionNotFound {
			return c.JSON(http.StatusNotFound, errorResponse{
				Message:       "transaction not found",
				TransactionID: txID,
			})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message:       "failed to query transaction",
			TransactionID: txID,
		})
	}

	return c.JSON(http.StatusOK, transactionResponse{
		TransactionID:  txID,
		ValidationCode: string(code),
	})
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(c echo.Context) error {
	height, err := s.querier.LedgerHeight(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ready", "ledgerHeight": height})
}

// ledgerError maps the typed error taxonomy onto HTTP statuses. The
// transaction id rides along whenever one exists so the client can poll
// the transaction endpoint.
func (s *Server) ledgerError(c echo.Context, err error) error {
	var (
		existsErr   *domain.AssetExistsError
		notFoundErr *domain.AssetNotFoundError
		txNFErr     *domain.TransactionNotFoundError
		txErr       *domain.TransactionError
	)

	switch {
	case errors.As(err, &existsErr):
		return c.JSON(http.StatusConflict, errorResponse{
			Message:       "asset already exists",
			TransactionID: existsErr.TransactionID,
		})
	case errors.As(err, &notFoundErr):
		return c.JSON(http.StatusNotFound, errorResponse{
			Message:       "asset does not exist",
			TransactionID: notFoundErr.TransactionID,
		})
	case errors.As(err, &txNFErr):
		return c.JSON(http.StatusNotFound, errorResponse{
			Message:       "transaction not found",
			TransactionID: txNFErr.TransactionID,
		})
	case errors.As(err, &txErr):
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message:       "transaction failed",
			TransactionID: txErr.TransactionID,
		})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}
