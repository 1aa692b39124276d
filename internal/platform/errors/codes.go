// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Generic request errors
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeMethodNotAllowed Code = "METHOD_NOT_ALLOWED"

	// Catalog errors
	CodeProductNameEmpty       Code = "PRODUCT_NAME_EMPTY"
	CodeProductInvalidPrice    Code = "PRODUCT_INVALID_PRICE"
	CodeProductInvalidStock    Code = "PRODUCT_INVALID_STOCK"
	CodeProductInvalidFilter   Code = "PRODUCT_INVALID_FILTER"
	CodeCategoryNameEmpty      Code = "CATEGORY_NAME_EMPTY"
	CodeCategorySlugTaken      Code = "CATEGORY_SLUG_TAKEN"
	CodeReviewInvalidRating    Code = "REVIEW_INVALID_RATING"
	CodeReviewAlreadySubmitted Code = "REVIEW_ALREADY_SUBMITTED"

	// Cart and checkout errors
	CodeCartEmpty              Code = "CART_EMPTY"
	CodeCartInvalidQuantity    Code = "CART_INVALID_QUANTITY"
	CodeCheckoutProductMissing Code = "CHECKOUT_PRODUCT_MISSING"
	CodeCheckoutPaymentFailed  Code = "CHECKOUT_PAYMENT_FAILED"
	CodeCheckoutWebhookInvalid Code = "CHECKOUT_WEBHOOK_INVALID"
	CodeCheckoutNotConfigured  Code = "CHECKOUT_NOT_CONFIGURED"
	CodeOrderInvalidStatus     Code = "ORDER_INVALID_STATUS"
	CodeOrderInvalidTransition Code = "ORDER_INVALID_TRANSITION"

	// Content errors
	CodeFAQQuestionEmpty    Code = "FAQ_QUESTION_EMPTY"
	CodeFAQAnswerEmpty      Code = "FAQ_ANSWER_EMPTY"
	CodeSettingKeyEmpty     Code = "SETTING_KEY_EMPTY"
	CodeSettingInvalidType  Code = "SETTING_INVALID_TYPE"
	CodeSettingInvalidValue Code = "SETTING_INVALID_VALUE"

	// Contact errors
	CodeContactNameEmpty     Code = "CONTACT_NAME_EMPTY"
	CodeContactInvalidEmail  Code = "CONTACT_INVALID_EMAIL"
	CodeContactMessageEmpty  Code = "CONTACT_MESSAGE_EMPTY"
	CodeContactRateLimited   Code = "CONTACT_RATE_LIMITED"
	CodeContactNotConfigured Code = "CONTACT_NOT_CONFIGURED"

	// Account errors
	CodeUserInvalidEmail       Code = "USER_INVALID_EMAIL"
	CodeUserPasswordTooShort   Code = "USER_PASSWORD_TOO_SHORT"
	CodeUserPasswordTooLong    Code = "USER_PASSWORD_TOO_LONG"
	CodeUserEmailTaken         Code = "USER_EMAIL_TAKEN"
	CodeUserInvalidCredentials Code = "USER_INVALID_CREDENTIALS"
	CodeUserInvalidRole        Code = "USER_INVALID_ROLE"

	// Media errors
	CodeImageMissing         Code = "IMAGE_MISSING"
	CodeImageTooLarge        Code = "IMAGE_TOO_LARGE"
	CodeImageUnsupportedType Code = "IMAGE_UNSUPPORTED_TYPE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// BadRequest - validation failures, bad input
	case CodeInvalidInput,
		CodeProductNameEmpty,
		CodeProductInvalidPrice,
		CodeProductInvalidStock,
		CodeProductInvalidFilter,
		CodeCategoryNameEmpty,
		CodeReviewInvalidRating,
		CodeCartEmpty,
		CodeCartInvalidQuantity,
		CodeCheckoutProductMissing,
		CodeCheckoutWebhookInvalid,
		CodeOrderInvalidStatus,
		CodeFAQQuestionEmpty,
		CodeFAQAnswerEmpty,
		CodeSettingKeyEmpty,
		CodeSettingInvalidType,
		CodeSettingInvalidValue,
		CodeContactNameEmpty,
		CodeContactInvalidEmail,
		CodeContactMessageEmpty,
		CodeUserInvalidEmail,
		CodeUserPasswordTooShort,
		CodeUserPasswordTooLong,
		CodeUserInvalidRole,
		CodeImageMissing,
		CodeImageUnsupportedType:
		return http.StatusBadRequest

	case CodeImageTooLarge:
		return http.StatusRequestEntityTooLarge

	case CodeUnauthenticated, CodeUserInvalidCredentials:
		return http.StatusUnauthorized

	case CodeForbidden:
		return http.StatusForbidden

	case CodeNotFound:
		return http.StatusNotFound

	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed

	// Conflict - state doesn't allow operation or uniqueness violated
	case CodeAlreadyExists,
		CodeCategorySlugTaken,
		CodeReviewAlreadySubmitted,
		CodeUserEmailTaken,
		CodeOrderInvalidTransition:
		return http.StatusConflict

	case CodeContactRateLimited:
		return http.StatusTooManyRequests

	case CodeContactNotConfigured, CodeCheckoutNotConfigured:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
