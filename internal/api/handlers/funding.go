package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/funding"
	"github.com/fieldline/paydesk/internal/models"
)

// CreateFlowHandler opens a new funding flow at the amount step.
func CreateFlowHandler(flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := flows.Create()
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, models.APIResponse{
			Data: flow.Status(),
		})
	}
}

// ListFlowsHandler returns every tracked flow.
func ListFlowsHandler(flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := flows.List()
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{
				"flows": statuses,
				"count": len(statuses),
			},
		})
	}
}

// FlowStatusHandler returns one flow's snapshot.
func FlowStatusHandler(flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, ok := lookupFlow(w, r, flows)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: flow.Status(),
		})
	}
}

// SubmitAmountHandler submits the USD amount and acknowledgement.
func SubmitAmountHandler(flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, ok := lookupFlow(w, r, flows)
		if !ok {
			return
		}

		var req struct {
			Amount string `json:"amount"`
			Agreed bool   `json:"agreed"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := flow.SubmitAmount(r.Context(), req.Amount, req.Agreed); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: flow.Status(),
		})
	}
}

// ChooseMethodHandler commits the flow to a currency and opens the
// payment window.
func ChooseMethodHandler(flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, ok := lookupFlow(w, r, flows)
		if !ok {
			return
		}

		var req struct {
			Method models.PaymentMethod `json:"method"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := flow.ChooseMethod(r.Context(), req.Method); err != nil {
			respondError(w, err)
			return
		}

		status := flow.Status()
		resp := map[string]interface{}{
			"flow":    status,
			"warning": funding.PaymentWarning(req.Method),
		}
		if status.Details != nil {
			resp["walletUri"] = funding.WalletURI(req.Method, status.Details.Address, status.Details.CoinAmount(req.Method))
		}
		writeJSON(w, http.StatusOK, models.APIResponse{Data: resp})
	}
}

// ChangeMethodHandler steps back from the payment screen to currency
// selection.
func ChangeMethodHandler(flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, ok := lookupFlow(w, r, flows)
		if !ok {
			return
		}
		if err := flow.ChangeMethod(); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: flow.Status(),
		})
	}
}

// NudgeHandler resolves the "have you made the payment?" prompt.
func NudgeHandler(flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, ok := lookupFlow(w, r, flows)
		if !ok {
			return
		}

		var req struct {
			Paid bool `json:"paid"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := flow.AnswerNudge(req.Paid); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: flow.Status(),
		})
	}
}

// QRHandler renders the payment QR for a flow in the payment window.
func QRHandler(flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, ok := lookupFlow(w, r, flows)
		if !ok {
			return
		}

		status := flow.Status()
		if status.Step != funding.StepPayment || status.Details == nil || status.Details.Address == "" {
			writeError(w, http.StatusConflict, config.ErrorWrongStep, "no payment window open")
			return
		}

		method := status.Details.Currency
		png, err := funding.QRPNG(method, status.Details.Address, status.Details.CoinAmount(method))
		if err != nil {
			slog.Error("failed to render payment QR", "flowId", flow.ID, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorInternal, "failed to render QR")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(png)
	}
}

// CloseFlowHandler abandons a flow and removes it from the registry.
func CloseFlowHandler(flows *funding.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, ok := lookupFlow(w, r, flows)
		if !ok {
			return
		}

		flows.Remove(flow.ID)
		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: flow.Status(),
		})
	}
}

func lookupFlow(w http.ResponseWriter, r *http.Request, flows *funding.Registry) (*funding.Flow, bool) {
	id := chi.URLParam(r, "flowID")
	flow, ok := flows.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, config.ErrorNotFound, "unknown funding flow")
		return nil, false
	}
	return flow, true
}
