package workflow

import "time"

// timeNow is a package-level variable for testability.
// Tests replace it to pin created_at and deadlines.
var timeNow = time.Now
