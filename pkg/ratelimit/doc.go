// Package ratelimit spaces out requests to the source host.
//
// Two limiters implement the Limiter interface:
//
// TokenBucket caps page requests (album and profile pages) to a fixed
// number per period:
//
//	pages := ratelimit.PerMinute(30)
//	if err := pages.Wait(ctx); err != nil {
//	    return err
//	}
//
// RandomInterval pauses for a random duration within a window every time it
// is waited on. One instance paces file downloads (1-5s by default), another
// cools down between albums (15-25s):
//
//	pacer := ratelimit.NewRandomInterval(time.Second, 5*time.Second)
//	_ = pacer.Wait(ctx)
//
// Tests inject a SleepFunc through NewRandomIntervalWithSleep to observe the
// requested pauses without waiting for them.
package ratelimit
