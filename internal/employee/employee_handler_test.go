package employee_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"concord-desk/internal/employee"
	"concord-desk/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeEmployeeService struct{}

func (f *fakeEmployeeService) Provision(ctx context.Context, req employee.ProvisionRequest) (*employee.EmployeeResponse, error) {
	return &employee.EmployeeResponse{MemberID: req.MemberID}, nil
}

func (f *fakeEmployeeService) Revoke(ctx context.Context, memberID string) error { return nil }

func (f *fakeEmployeeService) GetAll(ctx context.Context) ([]employee.EmployeeResponse, error) {
	return nil, nil
}

func (f *fakeEmployeeService) GetByMemberID(ctx context.Context, memberID string) (*employee.EmployeeResponse, error) {
	return nil, nil
}

func (f *fakeEmployeeService) UpdateRoles(ctx context.Context, memberID string, req employee.UpdateRolesRequest) (*employee.EmployeeResponse, error) {
	return nil, nil
}

func (f *fakeEmployeeService) SetRelayChannel(ctx context.Context, memberID string, channelID string) error {
	return nil
}

func postJSON(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestEmployeeHandler_ProvisionValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	apperror.Init()
	h := employee.NewHandler(&fakeEmployeeService{})

	t.Run("missing field reports a readable message", func(t *testing.T) {
		c, w := postJSON(t, `{"display_name":"Ravi Kumar"}`)

		h.Provision(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Member Id is required")
		assert.NotContains(t, w.Body.String(), "Field validation")
	})

	t.Run("valid body passes through", func(t *testing.T) {
		c, w := postJSON(t, `{"member_id":"554433221100","display_name":"Ravi Kumar"}`)

		h.Provision(c)

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}
