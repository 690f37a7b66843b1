package config

import "testing"

func TestTimeoutRelationships(t *testing.T) {
	t.Parallel()

	if LLMRequest >= WebhookProcessing {
		t.Errorf("LLMRequest (%v) must leave room inside WebhookProcessing (%v)", LLMRequest, WebhookProcessing)
	}
	if GraphAPIRequest >= WebhookProcessing {
		t.Errorf("GraphAPIRequest (%v) must be shorter than WebhookProcessing (%v)", GraphAPIRequest, WebhookProcessing)
	}
	if WebhookHTTPRead <= 0 || WebhookHTTPWrite <= 0 || WebhookHTTPIdle <= 0 {
		t.Error("HTTP server timeouts must be positive")
	}
	if ProfileCleanupInitialDelay >= ProfileCleanupInterval {
		t.Error("initial cleanup delay should be shorter than the interval")
	}
}
