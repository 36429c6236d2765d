package workflows

import "megacoop-kyc/activities"

// a gives workflows typed references to the KYC activity methods. The worker
// registers a real *activities.Activities; the nil value here only supplies
// method expressions to workflow.ExecuteActivity.
var a *activities.Activities
