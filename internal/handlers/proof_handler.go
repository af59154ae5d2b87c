package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"club-finance/internal/services"
	"club-finance/pkg/common"
)

// SubmitProof accepts a multipart form: file, amount, payment_method, transaction_id.
func (h *Handler) SubmitProof(c *gin.Context) {
	amount, err := decimal.NewFromString(c.PostForm("amount"))
	if err != nil {
		badRequest(c, "amount must be a number")
		return
	}

	var file []byte
	if header, err := c.FormFile("file"); err == nil {
		f, err := header.Open()
		if err != nil {
			badRequest(c, "could not read proof file")
			return
		}
		defer f.Close()
		// one byte over the limit is enough for the service to reject it
		file, err = io.ReadAll(io.LimitReader(f, services.MaxProofSize+1))
		if err != nil {
			badRequest(c, "could not read proof file")
			return
		}
	}

	s := session(c)
	proof, err := h.Proofs.Submit(c.Request.Context(), services.SubmitProofDTO{
		PaymentID:     c.Param("id"),
		UserID:        s.UserID,
		IsAdmin:       s.IsAdmin(),
		Amount:        amount,
		PaymentMethod: c.PostForm("payment_method"),
		TransactionID: c.PostForm("transaction_id"),
		File:          file,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	proof.Image = ""
	c.JSON(http.StatusCreated, common.NewCreatedResponse(proof, "Proof submitted"))
}

func (h *Handler) ListPaymentProofs(c *gin.Context) {
	view, err := h.Payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !session(c).IsAdmin() && (view.MemberID == nil || *view.MemberID != session(c).UserID) {
		h.respondError(c, services.ErrPaymentNotFound)
		return
	}
	proofs, err := h.Proofs.ListForPayment(c.Request.Context(), view.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(proofs, "Proofs fetched"))
}

func (h *Handler) ListPendingProofs(c *gin.Context) {
	res, err := h.Proofs.ListPending(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "limit", common.DefaultPageSize))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetProof(c *gin.Context) {
	proof, err := h.Proofs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !session(c).CanAccess(proof.UserID) {
		h.respondError(c, services.ErrProofNotFound)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(proof, "Proof fetched"))
}

func (h *Handler) ApproveProof(c *gin.Context) {
	res, err := h.Review.Approve(c.Request.Context(), services.ApproveProofDTO{
		ProofID: c.Param("id"),
		AdminID: session(c).UserID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	res.Proof.Image = ""
	if res.Ticket != nil {
		res.Ticket.ProofImage = ""
		res.Ticket.ProofBundle = nil
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(res, "Proof approved"))
}

type rejectProofRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RejectProof(c *gin.Context) {
	var req rejectProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	proof, err := h.Review.Reject(c.Request.Context(), services.RejectProofDTO{
		ProofID: c.Param("id"),
		AdminID: session(c).UserID,
		Reason:  req.Reason,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	proof.Image = ""
	c.JSON(http.StatusOK, common.NewSuccessResponse(proof, "Proof rejected"))
}
