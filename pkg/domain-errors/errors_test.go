package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite covers the code-matching rules handlers rely on when
// translating consent failures into responses.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "service not found"}
		s.Equal("service not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeConfigurationInvalid}
		s.Equal("configuration_invalid", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeMissingConsent, Message: "analytics disabled"}
		err2 := &Error{Code: CodeMissingConsent, Message: "marketing disabled"}
		s.True(errors.Is(err1, err2))
	})

	s.Run("does not match different codes", func() {
		s.False(errors.Is(&Error{Code: CodeNotFound}, &Error{Code: CodeInternal}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves the original domain code", func() {
		inner := New(CodeConfigurationInvalid, "duplicate service id")
		wrapped := Wrap(inner, CodeInternal, "engine unavailable")
		s.True(HasCode(wrapped, CodeConfigurationInvalid))
		s.Equal("engine unavailable", wrapped.Error())
	})

	s.Run("applies the code to plain errors", func() {
		wrapped := Wrap(fmt.Errorf("dial tcp: refused"), CodeStorageUnavailable, "slot write failed")
		s.True(HasCode(wrapped, CodeStorageUnavailable))
		s.ErrorContains(errors.Unwrap(wrapped), "refused")
	})
}
