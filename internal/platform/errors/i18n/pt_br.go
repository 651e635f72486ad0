package i18n

var messagesPtBR = map[Code]string{
	CodeUnknown:              "Algo deu errado. Tente novamente.",
	CodeStorageUnavailable:   "Não foi possível acessar o armazenamento local neste dispositivo.",
	CodeStorageCorrupt:       "Os dados de login salvos eram inválidos e foram redefinidos.",
	CodeNotFound:             "Não encontramos o que você procurava.",
	CodeNetworkUnavailable:   "Sem conexão. Verifique sua rede e tente novamente.",
	CodeNetworkTimeout:       "A solicitação expirou. Tente novamente.",
	CodeBackendRejected:      "O servidor rejeitou a solicitação.",
	CodeInviteTokenInvalid:   "Este link de convite é inválido ou expirou.",
	CodeInviteAlreadyMember:  "Você já é membro deste grupo.",
	CodeCodeExchangeFailed:   "Não foi possível concluir o login. Tente novamente.",
	CodeSessionExpired:       "Sua sessão expirou. Faça login novamente.",
	CodeSessionPersistFailed: "Login concluído, mas não foi possível salvar sua sessão. Talvez seja necessário entrar novamente na próxima vez.",
	CodeVerificationTimeout:  "E-mail verificado, mas o login não foi concluído. Tente abrir o link novamente.",
	CodeInviteEmptyReference: "Este link de convite está sem os detalhes do convite.",
	CodeInvitePartyMissing:   "Aceitamos seu convite, mas não encontramos o grupo.",
	CodeLinkMalformed:        "Não foi possível abrir esse link.",
}
