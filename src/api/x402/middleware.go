package x402

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context keys set for handlers once a payment has been verified.
const (
	CtxPaymentVerified = "payment_verified"
	CtxPaymentProof    = "payment_proof"
)

const paymentHeader = "X-Payment"

// Middleware adapts the resolver and facilitator to gin. Routes
// without a requirement pass through untouched. POST routes get a 402
// challenge until a valid X-Payment header arrives; GET routes without
// a header fall through so the handler can apply its own access rules
// (submitter, admin, prior grant) before deciding to demand payment.
func Middleware(resolver *Resolver, facilitator Facilitator) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := resolver.ResolvePaymentRequirement(c.Request.URL.Path, c.Request.Method)
		if req == nil {
			c.Next()
			return
		}

		proof := c.GetHeader(paymentHeader)
		if proof == "" {
			if c.Request.Method == http.MethodGet {
				c.Next()
				return
			}
			challenge, _ := json.Marshal(map[string]any{
				"x402Version": 1,
				"accepts":     []map[string]any{requirementsPayload(*req)},
			})
			c.Header("X-Payment-Required", base64.StdEncoding.EncodeToString(challenge))
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"err":     "payment_required",
				"detail":  req.Description,
				"price":   req.DisplayPrice(),
				"token":   req.Token,
				"network": req.Network,
				"payee":   req.Payee,
			})
			return
		}

		if err := facilitator.VerifyPayment(c.Request.Context(), proof, *req); err != nil {
			log.Printf("x402: payment rejected for %s: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"err":    "payment_required",
				"detail": err.Error(),
				"price":  req.DisplayPrice(),
			})
			return
		}

		c.Set(CtxPaymentVerified, true)
		c.Set(CtxPaymentProof, proof)
		c.Next()
	}
}
