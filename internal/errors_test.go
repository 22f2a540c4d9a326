package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/dashboard-access/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("matches its sentinel through copies and wrapping", func() {
		err := fmt.Errorf("delete role: %w", internal.ErrInUse.WithCause(errors.New("fk")))
		Expect(errors.Is(err, internal.ErrInUse)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrDuplicateName)).To(BeFalse())
		Expect(internal.KindOf(err)).To(Equal(internal.ErrCodeInUse))
	})

	It("never mutates sentinels", func() {
		_ = internal.ErrNotPermitted.WithMessage("changed").WithDetails("x").WithCause(errors.New("y"))
		Expect(internal.ErrNotPermitted.Message).To(Equal("not permitted"))
		Expect(internal.ErrNotPermitted.Details).To(BeNil())
		Expect(internal.ErrNotPermitted.Cause).To(BeNil())
	})

	It("classifies foreign errors as internal", func() {
		Expect(internal.KindOf(errors.New("boom"))).To(Equal(internal.ErrCodeInternal))
		Expect(internal.KindOf(nil)).To(BeEmpty())
	})

	It("keeps the cause out of the wire format", func() {
		body, err := json.Marshal(internal.ErrTimeout.WithCause(errors.New("dial tcp 10.0.0.1:5432")))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(`"code":"TIMEOUT"`))
		Expect(string(body)).NotTo(ContainSubstring("10.0.0.1"))
	})

	DescribeTable("maps each kind onto its status",
		func(err *internal.AppError, status int) {
			code, _ := err.ToHTTPResponse()
			Expect(code).To(Equal(status))
		},
		Entry("invalid credentials", internal.ErrInvalidCredentials, http.StatusUnauthorized),
		Entry("unauthenticated", internal.ErrUnauthenticated, http.StatusUnauthorized),
		Entry("not permitted", internal.ErrNotPermitted, http.StatusForbidden),
		Entry("not found", internal.ErrRoleNotFound, http.StatusNotFound),
		Entry("duplicate", internal.ErrDuplicateName, http.StatusConflict),
		Entry("system role", internal.ErrSystemRoleProtected, http.StatusBadRequest),
		Entry("in use", internal.ErrInUse, http.StatusConflict),
		Entry("partial failure", internal.ErrPartialFailure, http.StatusInternalServerError),
		Entry("timeout", internal.ErrTimeout, http.StatusGatewayTimeout),
		Entry("store unavailable", internal.ErrStoreUnavailable, http.StatusServiceUnavailable),
		Entry("rate limited", internal.ErrTooManyAttempts, http.StatusTooManyRequests),
	)

	It("surfaces the first validation message", func() {
		err := internal.NewValidationFieldError("email", "email is required", internal.ErrCodeValidationFailed)
		Expect(err.Error()).To(Equal("email is required"))
		Expect(err.StatusCode).To(Equal(http.StatusBadRequest))
	})
})
