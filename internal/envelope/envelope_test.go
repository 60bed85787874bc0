package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tfbridge/pkg/domainerrors"
)

func notificationJSON(extra string) []byte {
	return []byte(`{
		"Records": [{
			"EventSource": "aws:sns",
			"EventVersion": "1.0",
			"EventSubscriptionArn": "arn:aws:sns:us-east-1:111111111111:hub-topic:subscription-id",
			"Sns": {
				"Type": "Notification",
				"MessageId": "a5b3c288-81b5-53c7-a1f5-c65f45b1d1f6",
				"TopicArn": "arn:aws:sns:us-east-1:111111111111:hub-topic",
				"Subject": "AWS CloudFormation custom resource request with requester AccountId",
				"Message": "{\"RequestType\":\"Create\"}",
				"Timestamp": "2018-02-14T18:31:12.275Z",
				"SignatureVersion": "1",
				"Signature": "c2lnbmF0dXJl",
				"SigningCertUrl": "https://sns.us-east-1.amazonaws.com/SimpleNotificationService-abc.pem",
				"UnsubscribeUrl": "https://sns.us-east-1.amazonaws.com/?Action=Unsubscribe",
				"MessageAttributes": {
					"AccountId": {"Type": "String", "Value": "111111111111"}
				}` + extra + `
			}
		}]
	}`)
}

func TestDecodeStrict(t *testing.T) {
	content, err := Decode(notificationJSON(""), false)
	require.NoError(t, err)
	assert.Equal(t, "Notification", content.Type)
	assert.Equal(t, `{"RequestType":"Create"}`, content.Message)

	account, ok := content.Attribute("AccountId")
	require.True(t, ok)
	assert.Equal(t, "111111111111", account)

	_, ok = content.Attribute("Requester")
	assert.False(t, ok)
}

func TestDecodeStrictRejectsUnknownFields(t *testing.T) {
	raw := notificationJSON(`, "Injected": "surprise"`)

	_, err := Decode(raw, false)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeMalformedInput))

	content, err := Decode(raw, true)
	require.NoError(t, err)
	assert.Equal(t, "a5b3c288-81b5-53c7-a1f5-c65f45b1d1f6", content.MessageID)
}

func TestDecodeEmptyRecords(t *testing.T) {
	_, err := Decode([]byte(`{"Records": []}`), false)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeMalformedInput))

	_, err = Decode([]byte(`not json`), true)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeMalformedInput))
}

func TestSubjectRoundTripsAbsence(t *testing.T) {
	var content Content
	require.NoError(t, json.Unmarshal([]byte(`{"Type":"Notification"}`), &content))
	assert.Nil(t, content.Subject)

	require.NoError(t, json.Unmarshal([]byte(`{"Type":"Notification","Subject":""}`), &content))
	require.NotNil(t, content.Subject)
	assert.Empty(t, *content.Subject)
}
