package httpx

import "github.com/gin-gonic/gin"

// Parse binds path params, then the query string, then a JSON body into req.
// Each source is only consulted when the request carries it.
func Parse(c *gin.Context, req interface{}) error {
	if len(c.Params) > 0 {
		if err := c.ShouldBindUri(req); err != nil {
			return err
		}
	}
	if c.Request.URL.RawQuery != "" {
		if err := c.ShouldBindQuery(req); err != nil {
			return err
		}
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			return ErrBadRequest.Wrap(err).WithMsgf("invalid request body: %v", err)
		}
	}
	return nil
}
