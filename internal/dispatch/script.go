package dispatch

import (
	"fmt"

	"github.com/google/uuid"

	"tfbridge/internal/event"
)

// wrapperCommandFormat invokes the terraform wrapper installed on the server:
// serialized request, output bucket, stdout key, stderr key, external id.
// The script is a fixed template; only parameters are substituted, nothing is
// evaluated.
const wrapperCommandFormat = "sc-terraform-wrapper '%s' '%s' '%s' '%s' '%s'"

// buildScript renders the shell script submitted to the server. The wrapper's
// stdout and stderr are teed to temp files and moved to the output bucket
// when it finishes, and the wrapper's exit status is propagated so the fleet
// records the real outcome.
func buildScript(req *event.Request, outputBucket, outputKeyPrefix, externalID string) ([]string, error) {
	serialized, err := event.Marshal(req)
	if err != nil {
		return nil, err
	}

	stdoutKey := outputKeyPrefix + "/tf_wrapper_script_output"
	stderrKey := outputKeyPrefix + "/tf_wrapper_script_errors"

	wrapperCommand := fmt.Sprintf(wrapperCommandFormat,
		serialized, outputBucket, stdoutKey, stderrKey, externalID)

	return []string{
		"#!/bin/bash",
		"set -o pipefail",
		"tmp_out=/tmp/" + uuid.NewString(),
		"tmp_err=/tmp/" + uuid.NewString(),
		wrapperCommand + " > >(tee $tmp_out) 2> >(tee $tmp_err >&2)",
		"status=$?",
		fmt.Sprintf("aws s3 mv $tmp_out s3://%s/%s", outputBucket, stdoutKey),
		fmt.Sprintf("aws s3 mv $tmp_err s3://%s/%s", outputBucket, stderrKey),
		"exit $status",
	}, nil
}
