// Package mocks provides shared test doubles for the store, auth and service
// interfaces.
//
// Two styles are used. Store mocks embed testify's mock.Mock so tests can set
// expectations with On/Return and verify them with AssertExpectations. The
// auth and service mocks expose function fields (GenerateTokenFn, CreateFn,
// ...) with simple defaults, which keeps handler tests short:
//
//	jwtSvc := &mocks.MockJWTService{
//	    GenerateTokenFn: func(ctx context.Context, user *domain.User) (string, error) {
//	        return "mocked-token", nil
//	    },
//	}
package mocks
