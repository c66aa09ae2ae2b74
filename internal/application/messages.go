package application

// User-facing messages. The cover-up variants are deliberately shared with
// the matching success paths.
const (
	MsgUserRegistered     = "User has been successfully registered!"
	MsgUserExists         = "User is already existing in system, please try again."
	MsgPasswordPolicy     = "Password does not meet minimum requirements to be accepted."
	MsgPasswordRequired   = "Password is required."
	MsgRoleNotFound       = "Role not found."
	MsgBadCredentials     = "Bad credentials"
	MsgEmailNotRegistered = "User does not exists with this email!"

	MsgCheckInbox       = "Please check your email inbox."
	MsgResetSuccess     = "You have successfully reset password, try log in with new password."
	MsgTokenExpired     = "Request token has expired, try again later."
	MsgPasswordsNotSame = "Passwords are not same, please check passwords again."

	MsgEmailInvalid         = "Email is not valid"
	MsgUserNotFoundByEmail  = "User with this email does not exists!"
	MsgEmailAlreadyVerified = "Email is already verified"
	MsgVerificationSent     = "Verification code is sent to your email address"
	MsgEmailVerified        = "Email is verified"

	MsgEmailNotVerified      = "User email is not verified!"
	MsgOldPasswordMismatch   = "User old password does not match with the password from the request!"
	MsgNewPasswordMismatch   = "User new password and confirmation password does not matches!"
	MsgPasswordChanged       = "User password has been changed successfully!"
	MsgForbiddenOtherAccount = "You are not allowed to access this account."
)

// Flow names used as the "flow" log field.
const (
	flowRegistration      = "registration"
	flowAuthentication    = "authentication"
	flowPasswordReset     = "password_reset"
	flowEmailVerification = "email_verification"
	flowChangePassword    = "change_password"
)
