package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/taskhub/project-management-api/internal/errors"
	"github.com/taskhub/project-management-api/internal/services"
)

// respondServiceError translates service sentinel errors into API responses.
// Unknown errors are infrastructure failures and surface as 500s.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		apierrors.InsufficientPermissions(c, "")
	case errors.Is(err, services.ErrTaskForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrUserNotInProject),
		errors.Is(err, services.ErrProjectMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrProjectNameTaken),
		errors.Is(err, services.ErrInvalidProjectName),
		errors.Is(err, services.ErrTaskTitleTaken),
		errors.Is(err, services.ErrAssigneeRoleInvalid),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrNegativeHours),
		errors.Is(err, services.ErrDefaultAdminMissing):
		apierrors.ValidationFailed(c, err.Error())
	case errors.Is(err, services.ErrDueDatePassed),
		errors.Is(err, services.ErrNoteRequiresCompletion):
		apierrors.StateConflict(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
