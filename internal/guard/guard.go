// Package guard enforces the cross-account isolation check. The requester's
// account id arrives as an SNS message attribute stamped by the spoke-side
// publisher, so the requester controls the event payload but not the
// attribute; comparing the two prevents a payload-supplied role from escalating
// into another account.
package guard

import (
	"tfbridge/internal/envelope"
	"tfbridge/internal/event"
	"tfbridge/pkg/arn"
	"tfbridge/pkg/domainerrors"
)

// AccountIDAttributeKey is the SNS message attribute carrying the requester's
// account id.
const AccountIDAttributeKey = "AccountId"

// AssertSameAccount fails unless the launch role's account matches the
// requester account attribute on the envelope. It must run before any
// credential is requested and before dispatch.
func AssertSameAccount(properties *event.Properties, content *envelope.Content) error {
	launchRoleAccount, err := arn.AccountID(properties.LaunchRoleARN)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeCrossTenant, "extract account from LaunchRoleArn")
	}

	requesterAccount, ok := content.Attribute(AccountIDAttributeKey)
	if !ok {
		return domainerrors.New(domainerrors.CodeCrossTenant,
			"SNS input message does not contain %s attribute", AccountIDAttributeKey)
	}

	if requesterAccount != launchRoleAccount {
		return domainerrors.New(domainerrors.CodeCrossTenant,
			"to prevent permissions escalation TerraformStacks cannot use a LaunchRoleArn that references another account")
	}
	return nil
}
